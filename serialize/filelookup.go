package serialize

import (
	"fmt"

	"github.com/beevik/etree"

	"github.com/HOZHENWAI/hydrus/filelookup"
	"github.com/HOZHENWAI/hydrus/network"
	"github.com/HOZHENWAI/hydrus/stringconv"
)

// FileLookupVersion is the current on-disk schema version of
// ParseRootFileLookup, per spec.md §4.8.
const FileLookupVersion = 2

// SerializeFileLookup renders r in the current (v2) schema.
func SerializeFileLookup(r *filelookup.Root) (*etree.Element, error) {
	el := newElement("file_lookup", FileLookupVersion)
	el.CreateAttr("name", r.Name)
	el.CreateAttr("url", r.URL)
	el.CreateAttr("query_type", methodName(r.QueryType))
	el.CreateAttr("file_identifier_type", identifierKindName(r.FileIdentifierType))
	el.CreateAttr("file_identifier_arg_name", r.FileIdentifierArgName)
	el.AddChild(SerializeStringConverter(r.Converter))

	args := el.CreateElement("static_args")
	for k, v := range r.StaticArgs {
		a := args.CreateElement("arg")
		a.CreateAttr("key", k)
		a.SetText(v)
	}

	if err := serializeChildren(el, "children", r.Children); err != nil {
		return nil, err
	}
	return el, nil
}

// DeserializeFileLookup reads el, migrating v1's raw file_identifier_encoding
// enum into the v2 StringConverter it is equivalent to, per spec.md §4.8.
func DeserializeFileLookup(el *etree.Element) (*filelookup.Root, error) {
	version, err := elementVersion(el)
	if err != nil {
		return nil, err
	}

	queryType, err := methodFromName(el.SelectAttrValue("query_type", ""))
	if err != nil {
		return nil, err
	}
	idType, err := identifierKindFromName(el.SelectAttrValue("file_identifier_type", ""))
	if err != nil {
		return nil, err
	}

	var conv *stringconv.Converter
	switch version {
	case 1:
		conv = migrateFileLookupV1(el.SelectAttrValue("file_identifier_encoding", "raw"))
	case FileLookupVersion:
		conv, err = DeserializeStringConverter(el.SelectElement("string_converter"))
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("file lookup: unsupported schema version %d", version)
	}

	r := filelookup.New(
		el.SelectAttrValue("name", ""),
		el.SelectAttrValue("url", ""),
		queryType,
		idType,
		conv,
		el.SelectAttrValue("file_identifier_arg_name", ""),
	)

	if args := el.SelectElement("static_args"); args != nil {
		for _, a := range args.SelectElements("arg") {
			r.StaticArgs[a.SelectAttrValue("key", "")] = a.Text()
		}
	}

	r.Children, err = deserializeChildren(el, "children")
	if err != nil {
		return nil, err
	}
	return r, nil
}

// migrateFileLookupV1 implements v1->v2: file_identifier_encoding was one
// of raw/hex/base64; raw becomes the identity converter, hex/base64
// become a single ENCODE transformation of the matching scheme.
func migrateFileLookupV1(encoding string) *stringconv.Converter {
	var transforms []stringconv.Transformation
	switch encoding {
	case "hex":
		transforms = append(transforms, stringconv.EncodeT(stringconv.Hex))
	case "base64":
		transforms = append(transforms, stringconv.EncodeT(stringconv.Base64))
	}
	conv := stringconv.New(transforms...)
	conv.ExampleString = "some hash bytes"
	return conv
}

func methodName(m network.Method) string {
	switch m {
	case network.GET:
		return "get"
	case network.POST:
		return "post"
	default:
		return ""
	}
}

func methodFromName(name string) (network.Method, error) {
	switch name {
	case "get":
		return network.GET, nil
	case "post":
		return network.POST, nil
	default:
		return "", fmt.Errorf("unknown query type %q", name)
	}
}

func identifierKindName(k filelookup.IdentifierKind) string {
	switch k {
	case filelookup.File:
		return "file"
	case filelookup.MD5:
		return "md5"
	case filelookup.SHA1:
		return "sha1"
	case filelookup.SHA256:
		return "sha256"
	case filelookup.SHA512:
		return "sha512"
	case filelookup.UserInput:
		return "user_input"
	default:
		return ""
	}
}

func identifierKindFromName(name string) (filelookup.IdentifierKind, error) {
	switch name {
	case "file":
		return filelookup.File, nil
	case "md5":
		return filelookup.MD5, nil
	case "sha1":
		return filelookup.SHA1, nil
	case "sha256":
		return filelookup.SHA256, nil
	case "sha512":
		return filelookup.SHA512, nil
	case "user_input":
		return filelookup.UserInput, nil
	default:
		return 0, fmt.Errorf("unknown file identifier type %q", name)
	}
}
