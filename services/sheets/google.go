package sheetsvc

import (
	"context"

	"github.com/pkg/errors"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/sheleads/intake/core"
)

// googleService appends submission rows to the configured spreadsheet.
type googleService struct {
	svc        *sheets.Service
	sheetID    string
	sheetRange string
}

var _ core.SheetAppender = (*googleService)(nil)

func NewGoogleService(ctx context.Context, conf *core.Config) (*googleService, error) {
	svc, err := sheets.NewService(ctx, option.WithCredentialsFile(conf.Google.CredentialsFile))
	if err != nil {
		return nil, errors.Wrap(err, "creating sheets client")
	}
	return &googleService{
		svc:        svc,
		sheetID:    conf.Google.SheetID,
		sheetRange: conf.Google.SheetRange,
	}, nil
}

func (s *googleService) AppendRow(ctx context.Context, values []interface{}) error {
	vr := &sheets.ValueRange{Values: [][]interface{}{values}}
	_, err := s.svc.Spreadsheets.Values.
		Append(s.sheetID, s.sheetRange, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return errors.Wrap(err, "appending sheet row")
}
