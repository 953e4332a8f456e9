package weixin

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUploadImageRequestShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/img.png" {
			w.Header().Set("Content-Type", "image/png")
			w.Write([]byte("image bytes"))
			return
		}

		assert.Equal(t, "/cgi-bin/filetransfer", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "upload_material", q.Get("action"))
		assert.Equal(t, "8", q.Get("scene"))
		// 防重放参数：ticket_id 取公众号原始ID，seq 取当前毫秒时间
		assert.Equal(t, "gh_test", q.Get("ticket_id"))
		assert.Equal(t, "tk", q.Get("ticket"))
		assert.NotEmpty(t, q.Get("seq"))
		assert.Equal(t, "42", q.Get("token"))

		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "image/png", r.FormValue("type"))
		assert.NotEmpty(t, r.FormValue("name"))
		assert.Equal(t, "11", r.FormValue("size"))

		w.Write([]byte(`{"base_resp":{"err_msg":"ok"},"content":"777","cdn_url":"https://cdn.example/777.jpg"}`))
	}))
	defer server.Close()

	p := New(server.Client(), WithBaseURL(server.URL))
	creds := &Credentials{Token: "42", Ticket: "tk", UserName: "gh_test"}

	result, err := p.UploadImage(context.Background(), creds, server.URL+"/img.png", SceneArticleImage)
	assert.NoError(t, err)
	assert.Equal(t, int64(777), result.FileID)
	assert.Equal(t, "https://cdn.example/777.jpg", result.URL)
}

func TestUploadImageNonOkReturnsNil(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/img.png" {
			w.Write([]byte("image bytes"))
			return
		}
		w.Write([]byte(`{"base_resp":{"err_msg":"freq limit"}}`))
	}))
	defer server.Close()

	p := New(server.Client(), WithBaseURL(server.URL))
	result, err := p.UploadImage(context.Background(), &Credentials{Token: "42"}, server.URL+"/img.png", SceneArticleImage)

	// 非 ok 返回 nil 不报错
	assert.NoError(t, err)
	assert.Nil(t, result)
}

func TestUploadImageLocalFile(t *testing.T) {
	// 本地文件路径也能作为图片来源
	dir := t.TempDir()
	localPath := filepath.Join(dir, "local.jpg")
	assert.NoError(t, os.WriteFile(localPath, []byte("local image"), 0644))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "11", r.FormValue("size"))
		w.Write([]byte(`{"base_resp":{"err_msg":"ok"},"content":"1","cdn_url":"https://cdn.example/1.jpg"}`))
	}))
	defer server.Close()

	p := New(server.Client(), WithBaseURL(server.URL))
	result, err := p.UploadImage(context.Background(), &Credentials{Token: "42"}, localPath, SceneArticleImage)
	assert.NoError(t, err)
	assert.NotNil(t, result)
}
