package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// ObjectStore keeps uploaded objects in memory.
type ObjectStore struct {
	mu      sync.Mutex
	Objects map[string][]byte
	PutErr  error
}

func NewObjectStore() *ObjectStore {
	return &ObjectStore{Objects: make(map[string][]byte)}
}

func (o *ObjectStore) UploadFile(name string, file *multipart.FileHeader, folder string, allowed ...string) (string, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if len(allowed) > 0 {
		ok := false
		for _, a := range allowed {
			if a == ext {
				ok = true
			}
		}
		if !ok {
			return "", fmt.Errorf("file extension %s not allowed", ext)
		}
	}

	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	key := fmt.Sprintf("%s/%s%s", folder, name, ext)
	return key, o.PutObject(context.Background(), key, src, "")
}

func (o *ObjectStore) PutObject(ctx context.Context, key string, body io.Reader, contentType string) error {
	if o.PutErr != nil {
		return o.PutErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Objects[key] = data
	return nil
}

func (o *ObjectStore) GetObject(ctx context.Context, key string) (io.ReadCloser, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	data, ok := o.Objects[key]
	if !ok {
		return nil, errors.Errorf("get object %s: no such key", key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (o *ObjectStore) DeleteFile(key string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.Objects, key)
	return nil
}

func (o *ObjectStore) GetObjectKeyFromLink(link string) string {
	return strings.TrimPrefix(link, "https://objects.test/")
}

func (o *ObjectStore) GetPublicLinkKey(key string) string {
	return "https://objects.test/" + key
}

// Mail is one recorded message.
type Mail struct {
	To      string
	Subject string
	Body    string
}

// Mailer records sent mail instead of dialing SMTP.
type Mailer struct {
	mu   sync.Mutex
	Sent []Mail
}

func (m *Mailer) SendMail(toEmail string, subject string, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, Mail{To: toEmail, Subject: subject, Body: body})
	return nil
}

func (m *Mailer) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}

// FileHeader builds a multipart file header holding content, as fiber's
// FormFile would return it.
func FileHeader(fieldName, fileName, contentType string, content []byte) (*multipart.FileHeader, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, fieldName, fileName))
	h.Set("Content-Type", contentType)
	part, err := writer.CreatePart(h)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(content); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	form, err := multipart.NewReader(body, writer.Boundary()).ReadForm(int64(len(content)) + 1024)
	if err != nil {
		return nil, err
	}
	files := form.File[fieldName]
	if len(files) == 0 {
		return nil, errors.New("no file in form")
	}
	return files[0], nil
}
