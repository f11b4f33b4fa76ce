package core

import "context"

// SheetAppender is any service that can append a denormalized row to an
// external spreadsheet. The target sheet and range are the service's concern.
type SheetAppender interface {
	AppendRow(ctx context.Context, values []interface{}) error
}
