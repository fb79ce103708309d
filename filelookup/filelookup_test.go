package filelookup

import (
	"context"
	"io"
	"net/url"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HOZHENWAI/hydrus/content"
	"github.com/HOZHENWAI/hydrus/contentlink"
	"github.com/HOZHENWAI/hydrus/hashstore"
	"github.com/HOZHENWAI/hydrus/htmlformula"
	"github.com/HOZHENWAI/hydrus/network"
)

type fakeMedia struct {
	hash []byte
	mime string
}

func (m fakeMedia) PrimaryHash() []byte { return m.hash }
func (m fakeMedia) MIME() string        { return m.mime }

type captureEngine struct {
	lastURL    string
	lastMethod network.Method
	lastFiles  map[string]io.Reader
	response   string
}

type captureJob struct {
	e    *captureEngine
	url  string
	body string
}

func (j *captureJob) SetFiles(files map[string]io.Reader) { j.e.lastFiles = files }
func (j *captureJob) OverrideBandwidth()                  {}
func (j *captureJob) WaitUntilDone(ctx context.Context) error {
	j.e.lastURL = j.url
	return nil
}
func (j *captureJob) GetContent() ([]byte, error) { return []byte(j.e.response), nil }

func (e *captureEngine) NewJob(method network.Method, u, referral string, body io.Reader) network.NetworkJob {
	e.lastMethod = method
	return &captureJob{e: e, url: u}
}

func TestConvertMediaToFileIdentifier_SHA256(t *testing.T) {
	r := New("lookup", "https://example.com/file", network.GET, SHA256, nil, "hash")
	id, err := r.ConvertMediaToFileIdentifier(fakeMedia{hash: []byte{1, 2, 3}})
	require.NoError(t, err)
	assert.Equal(t, SHA256, id.Kind)
	assert.Equal(t, []byte{1, 2, 3}, id.Bytes)
}

func TestConvertMediaToFileIdentifier_MD5ViaHashStore(t *testing.T) {
	hs := hashstore.NewStatic()
	sha := []byte{1, 2, 3}
	hs.Put(sha, hashstore.MD5, []byte{9, 9, 9})

	r := New("lookup", "https://example.com/file", network.GET, MD5, nil, "hash")
	r.HashStore = hs

	id, err := r.ConvertMediaToFileIdentifier(fakeMedia{hash: sha})
	require.NoError(t, err)
	assert.Equal(t, []byte{9, 9, 9}, id.Bytes)
}

func TestConvertMediaToFileIdentifier_UserInputForbidden(t *testing.T) {
	r := New("lookup", "https://example.com/file", network.GET, UserInput, nil, "hash")
	_, err := r.ConvertMediaToFileIdentifier(fakeMedia{})
	assert.ErrorIs(t, err, ErrUserInputNotPermitted)
}

func TestFetchData_GETEncodesArgsInQuery(t *testing.T) {
	r := New("lookup", "https://example.com/file", network.GET, SHA256, nil, "hash")
	r.StaticArgs = map[string]string{"size": "full"}
	eng := &captureEngine{response: "body"}

	body, err := r.FetchData(context.Background(), eng, Identifier{Kind: SHA256, Bytes: []byte{0xab}})
	require.NoError(t, err)
	assert.Equal(t, "body", string(body))

	u, err := url.Parse(eng.lastURL)
	require.NoError(t, err)
	assert.Equal(t, "\xab", u.Query().Get("hash"))
	assert.Equal(t, "full", u.Query().Get("size"))
}

func TestFetchData_GETWithFileIdentifierIsForbidden(t *testing.T) {
	r := New("lookup", "https://example.com/file", network.GET, File, nil, "file")
	eng := &captureEngine{}
	_, err := r.FetchData(context.Background(), eng, Identifier{Kind: File, Path: "a/b.bin"})
	assert.ErrorIs(t, err, ErrFileAttachmentWithGET)
}

func TestFetchData_POSTWithFileAttachesContent(t *testing.T) {
	fsys := fstest.MapFS{"ab/abcdef.bin": &fstest.MapFile{Data: []byte("filebytes")}}
	r := New("lookup", "https://example.com/file", network.POST, File, nil, "file")
	r.FS = fsys
	eng := &captureEngine{response: "ok"}

	body, err := r.FetchData(context.Background(), eng, Identifier{Kind: File, Path: "ab/abcdef.bin"})
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, network.POST, eng.lastMethod)

	require.Contains(t, eng.lastFiles, "file")
	attached, err := io.ReadAll(eng.lastFiles["file"])
	require.NoError(t, err)
	assert.Equal(t, "filebytes", string(attached))
}

func TestDoQuery_RecursesAndFinishesJob(t *testing.T) {
	eng := &captureEngine{response: `<p>tag</p>`}
	r := New("lookup", "https://example.com/file", network.GET, SHA256, nil, "hash")
	parser := &content.Parser{
		Name:    "tags",
		Type:    content.Mappings,
		Formula: htmlformula.New([]htmlformula.TagRule{{Name: "p"}}, htmlformula.String, "", nil, nil),
	}
	r.Children = []contentlink.Child{parser}

	job := network.NewSimpleJob()
	results, err := r.DoQuery(context.Background(), job, eng, Identifier{Kind: SHA256, Bytes: []byte{1}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "tag", results[0].Fragment)
	assert.True(t, job.Finished())
}
