package sheetsvc

import (
	"context"
	"sync"

	"github.com/sheleads/intake/core"
)

// DummyService records appended rows in memory. It backs tests and local
// runs without Google credentials.
type DummyService struct {
	mu   sync.Mutex
	rows [][]interface{}

	// Err, when set, is returned by every AppendRow call.
	Err error
}

var _ core.SheetAppender = (*DummyService)(nil)

func NewDummyService() *DummyService {
	return &DummyService{}
}

func (s *DummyService) AppendRow(_ context.Context, values []interface{}) error {
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	s.rows = append(s.rows, values)
	s.mu.Unlock()
	return nil
}

func (s *DummyService) Rows() [][]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]interface{}, len(s.rows))
	copy(out, s.rows)
	return out
}
