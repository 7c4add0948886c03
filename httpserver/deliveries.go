package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/dmitrymomot/assetmail/core/delivery"
)

// Deliverer is the delivery use case consumed by the HTTP layer.
type Deliverer interface {
	Send(ctx context.Context, subject string, req delivery.Request) (*delivery.Result, error)
}

type deliveryRequest struct {
	ToEmail          string `json:"toEmail"`
	RecordingKey     string `json:"recordingKey,omitempty"`
	TranscriptionKey string `json:"transcriptionKey,omitempty"`
}

type deliveryResponse struct {
	MessageID string                  `json:"messageId"`
	ToEmail   string                  `json:"toEmail"`
	Mode      delivery.Mode           `json:"mode"`
	Links     []delivery.DownloadLink `json:"links"`
}

func createDelivery(svc Deliverer) echo.HandlerFunc {
	return func(c echo.Context) error {
		subject, ok := Subject(c)
		if !ok {
			return &delivery.Error{Kind: delivery.KindUnauthorized, Message: "missing caller identity"}
		}

		var in deliveryRequest
		if err := bindJSON(c.Request(), &in); err != nil {
			var he *echo.HTTPError
			if errors.As(err, &he) {
				return he
			}
			return &delivery.Error{Kind: delivery.KindMalformedRequest, Message: err.Error(), Err: err}
		}

		res, err := svc.Send(c.Request().Context(), subject, delivery.Request{
			ToEmail:          strings.TrimSpace(in.ToEmail),
			RecordingKey:     strings.TrimSpace(in.RecordingKey),
			TranscriptionKey: strings.TrimSpace(in.TranscriptionKey),
		})
		if err != nil {
			return err
		}

		links := res.Links
		if links == nil {
			links = []delivery.DownloadLink{}
		}
		return c.JSON(http.StatusOK, deliveryResponse{
			MessageID: res.MessageID,
			ToEmail:   res.ToEmail,
			Mode:      res.Mode,
			Links:     links,
		})
	}
}
