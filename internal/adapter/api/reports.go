package api

import (
	"context"
	"fmt"
	"mime"
	"net/http"

	"github.com/iho/splitledger/internal/domain"
	"github.com/iho/splitledger/internal/usecase"
)

// ReportGateway implements usecase.ReportGateway.
type ReportGateway struct {
	client *Client
}

var _ usecase.ReportGateway = (*ReportGateway)(nil)

// NewReportGateway creates a new ReportGateway.
func NewReportGateway(client *Client) *ReportGateway {
	return &ReportGateway{client: client}
}

// UserReport fetches the pre-aggregated report of a user.
func (g *ReportGateway) UserReport(ctx context.Context, session *domain.Session, userID string) (*domain.UserReport, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}

	var dto userReportDTO
	err := g.client.doJSON(ctx, request{
		service:   ServiceReports,
		operation: "user_report",
		method:    http.MethodGet,
		path:      pathf("/reports/user/%s", userID),
		session:   session,
	}, &dto)
	if err != nil {
		return nil, err
	}

	return dto.report(), nil
}

// Export downloads a group report in the given format, as produced by the server.
func (g *ReportGateway) Export(ctx context.Context, session *domain.Session, groupID string, format domain.ExportFormat) (*domain.Artifact, error) {
	accept := "application/vnd.ms-excel"
	if format == domain.ExportPDF {
		accept = "application/pdf"
	}

	resp, err := g.client.execute(ctx, request{
		service:   ServiceReports,
		operation: "export_" + string(format),
		method:    http.MethodGet,
		path:      pathf("/reports/group/%s/export/%s", groupID, string(format)),
		session:   session,
		accept:    accept,
	})
	if err != nil {
		return nil, err
	}

	artifact := &domain.Artifact{
		ContentType: resp.header.Get("Content-Type"),
		Data:        resp.body,
	}
	if artifact.ContentType == "" {
		artifact.ContentType = accept
	}
	if _, params, err := mime.ParseMediaType(resp.header.Get("Content-Disposition")); err == nil {
		artifact.Filename = params["filename"]
	}

	return artifact, nil
}
