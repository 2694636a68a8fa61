package server

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

const maxUploadBytes = 10 << 20

// quizFromMultipart reads a single quiz out of a multipart form. An optional
// "image" part is stored under uploadDir and referenced by URL.
func quizFromMultipart(r *http.Request, uploadDir string) (QuizInput, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return QuizInput{}, err
	}

	q := QuizInput{
		Group:      r.FormValue("group"),
		Title:      r.FormValue("title"),
		Contents:   r.FormValue("contents"),
		OptionKind: r.FormValue("optionKind"),
		Option1:    r.FormValue("option1"),
		Option2:    r.FormValue("option2"),
		Option3:    r.FormValue("option3"),
		Option4:    r.FormValue("option4"),
		Answer:     r.FormValue("answer"),
	}
	if q.OptionKind == "" {
		q.OptionKind = "text"
	}

	file, header, err := r.FormFile("image")
	if err == http.ErrMissingFile {
		return q, nil
	}
	if err != nil {
		return QuizInput{}, err
	}
	defer file.Close()

	url, err := saveUpload(uploadDir, file, header)
	if err != nil {
		return QuizInput{}, err
	}
	q.ImageURL = url
	return q, nil
}

// saveUpload writes the uploaded file under dir with a random name, keeping
// only the original extension, and returns the public URL path.
func saveUpload(dir string, file multipart.File, header *multipart.FileHeader) (string, error) {
	name := uuid.NewString() + filepath.Ext(header.Filename)

	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("create upload: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	return "/uploads/" + name, nil
}
