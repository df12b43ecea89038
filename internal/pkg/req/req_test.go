package req

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oasip/internal/pkg/errs"
)

func TestNewJSON(t *testing.T) {
	r, err := NewJSON(context.Background(), http.MethodPost, "http://api/auth/login",
		map[string]string{"email": "a@b.com"})
	require.NoError(t, err)

	assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
	body, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"email":"a@b.com"}`, string(body))
	assert.NotNil(t, r.GetBody, "body can be replayed")
}

func TestNewJSON_EncodeFailure(t *testing.T) {
	_, err := NewJSON(context.Background(), http.MethodPost, "http://api", map[string]any{"ch": make(chan int)})
	assert.True(t, errs.Is(err, errs.ErrEncodeFailed))
}

func readParts(t *testing.T, r *http.Request) []*multipart.Part {
	t.Helper()
	mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	require.NoError(t, err)
	require.Equal(t, "multipart/form-data", mediaType)

	mr := multipart.NewReader(r.Body, params["boundary"])
	var parts []*multipart.Part
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			return parts
		}
		require.NoError(t, err)
		parts = append(parts, p)
	}
}

func TestNewMultipart_FieldsAndEmptyFile(t *testing.T) {
	form := NewForm().
		Field("eventNotes", "X").
		File("file", "", "", nil)

	r, err := NewMultipart(context.Background(), http.MethodPatch, "http://api/events/5", form)
	require.NoError(t, err)

	mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	require.NoError(t, err)
	require.Equal(t, "multipart/form-data", mediaType)

	mr := multipart.NewReader(r.Body, params["boundary"])

	p, err := mr.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "eventNotes", p.FormName())
	v, _ := io.ReadAll(p)
	assert.Equal(t, "X", string(v))

	p, err = mr.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "file", p.FormName())
	assert.Contains(t, p.Header.Get("Content-Disposition"), `filename=""`)
	content, _ := io.ReadAll(p)
	assert.Empty(t, content)

	_, err = mr.NextPart()
	assert.Equal(t, io.EOF, err)
}

func TestNewMultipart_FileContent(t *testing.T) {
	form := NewForm().File("file", `we"ird.txt`, "text/plain", []byte("hello"))

	r, err := NewMultipart(context.Background(), http.MethodPost, "http://api/events", form)
	require.NoError(t, err)

	parts := readParts(t, r)
	require.Len(t, parts, 1)
	assert.Equal(t, `we"ird.txt`, parts[0].FileName())
	assert.Equal(t, "text/plain", parts[0].Header.Get("Content-Type"))
}

func TestForm_EncodeIsRepeatable(t *testing.T) {
	form := NewForm().Field("a", "1").File("file", "f.bin", "", []byte{1, 2, 3})

	first, ct1, err := form.Encode()
	require.NoError(t, err)
	second, ct2, err := form.Encode()
	require.NoError(t, err)

	assert.NotEmpty(t, first)
	assert.NotEmpty(t, second)
	assert.Contains(t, ct1, "multipart/form-data")
	assert.Contains(t, ct2, "multipart/form-data")
}

func TestNewJSON_BodyIsJSON(t *testing.T) {
	r, err := NewJSON(context.Background(), http.MethodPatch, "http://api/users/1", struct {
		Name *string `json:"name,omitempty"`
	}{})
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	assert.Empty(t, got)
}
