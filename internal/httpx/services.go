package httpx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"

	"github.com/ariefcatur/go-detailing-bookings/internal/bookings"
)

// ServiceRemote is the service catalog endpoint set. Writes go out as
// multipart forms so an image can ride along.
type ServiceRemote struct{ C *Client }

func (r ServiceRemote) List(ctx context.Context, auth string) ([]bookings.Service, error) {
	var out []bookings.Service
	if err := r.C.sendJSON(ctx, http.MethodGet, "/api/services", auth, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r ServiceRemote) Create(ctx context.Context, auth string, d bookings.ServiceDraft) (bookings.Service, error) {
	price := d.Price
	body, ct, err := serviceForm(&d.Title, &price, &d.Description, d.Image)
	if err != nil {
		return bookings.Service{}, err
	}
	var out bookings.Service
	err = r.C.send(ctx, http.MethodPost, "/api/services", auth, ct, body, &out)
	return out, err
}

func (r ServiceRemote) Update(ctx context.Context, auth, id string, p bookings.ServicePatch) error {
	body, ct, err := serviceForm(p.Title, p.Price, p.Description, p.Image)
	if err != nil {
		return err
	}
	return r.C.send(ctx, http.MethodPut, "/api/services/"+url.PathEscape(id), auth, ct, body, nil)
}

func (r ServiceRemote) Delete(ctx context.Context, auth, id string) error {
	return r.C.sendJSON(ctx, http.MethodDelete, "/api/services/"+url.PathEscape(id), auth, nil, nil)
}

func serviceForm(title *string, price *bookings.Price, description *string, img *bookings.Attachment) ([]byte, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fields := []struct {
		name string
		set  bool
		val  func() string
	}{
		{"title", title != nil, func() string { return *title }},
		{"price", price != nil, func() string { return price.String() }},
		{"description", description != nil, func() string { return *description }},
	}
	for _, f := range fields {
		if !f.set {
			continue
		}
		if err := mw.WriteField(f.name, f.val()); err != nil {
			return nil, "", err
		}
	}
	if img != nil {
		if img.Filename == "" {
			return nil, "", errors.New("image attachment needs a filename")
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, img.Filename))
		ct := img.ContentType
		if ct == "" {
			ct = http.DetectContentType(img.Data)
		}
		h.Set("Content-Type", ct)
		part, err := mw.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(img.Data); err != nil {
			return nil, "", err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}
