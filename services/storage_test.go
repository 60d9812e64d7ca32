package services

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uploadedFile(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("resume", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/api/v1/resumes", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))

	return req.MultipartForm.File["resume"][0]
}

func TestStorageSaveFile(t *testing.T) {
	svc, err := NewStorageService(t.TempDir())
	require.NoError(t, err)

	t.Run("pdf accepted", func(t *testing.T) {
		header := uploadedFile(t, "resume.pdf", []byte("%PDF-1.4 test"))

		path, err := svc.SaveFile(header)
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(filepath.Base(path), "cv_"))
		assert.Equal(t, ".pdf", filepath.Ext(path))

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, []byte("%PDF-1.4 test"), content)
	})

	t.Run("non pdf rejected", func(t *testing.T) {
		header := uploadedFile(t, "resume.docx", []byte("not a pdf"))

		_, err := svc.SaveFile(header)
		assert.Error(t, err)
	})

	t.Run("uppercase extension accepted", func(t *testing.T) {
		header := uploadedFile(t, "RESUME.PDF", []byte("%PDF-1.4"))

		_, err := svc.SaveFile(header)
		assert.NoError(t, err)
	})
}

func TestStorageDeleteFile(t *testing.T) {
	svc, err := NewStorageService(t.TempDir())
	require.NoError(t, err)

	header := uploadedFile(t, "resume.pdf", []byte("%PDF-1.4"))
	path, err := svc.SaveFile(header)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteFile(path))
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))

	// Deleting an already removed file is not an error.
	assert.NoError(t, svc.DeleteFile(path))
}
