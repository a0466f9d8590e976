// Package sms implements the message query and command engine.
//
// The engine owns the message list for the current search session
// exclusively: a new search discards the prior list, a failed search clears
// it so stale results are never attributed to the wrong phone. A mutex
// guards the session state because fetches and deletions complete on
// goroutines other than the one driving the state machine.
package sms

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"relayctl/internal/api"
	"relayctl/internal/logging"
	"relayctl/internal/types"
)

// ErrEmptyPhone rejects a search or delete with no device phone. Raised
// locally, before any network call.
var ErrEmptyPhone = errors.New("phone is required")

// State is the search session state.
type State int

const (
	// StateIdle means no search is in flight and no list is attributable
	// to a phone.
	StateIdle State = iota
	// StateLoading means a search has been issued and its result is pending.
	StateLoading
	// StateLoaded means the list belongs to the current phone.
	StateLoaded
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	default:
		return "unknown"
	}
}

// Querier is the slice of the gateway client the engine needs.
type Querier interface {
	QueryMessages(ctx context.Context, q api.MessageQuery) ([]types.Message, error)
	SendMessage(ctx context.Context, cmd types.SendCommand) error
	DeleteMessages(ctx context.Context, phone string, slot int) error
}

// SendResult is the explicit outcome of a send command. Accepted only
// means the gateway queued the instruction; neither outcome confirms
// device-side completion.
type SendResult struct {
	Accepted bool
	Reason   string // populated when the gateway rejected the command
}

// Engine executes phone-scoped searches, paginates results client-side
// and dispatches send/delete commands.
type Engine struct {
	apiClient    Querier
	log          *logging.Logger
	bulkLimit    int
	previewLimit int

	mu       sync.Mutex
	state    State
	phone    string // phone the current list belongs to
	messages []types.Message
	gen      uint64 // latest issued search generation

	pageSize int
	page     int // 1-based
}

// NewEngine creates an idle engine. bulkLimit caps a full search,
// previewLimit caps the compact device preview, pageSize is the initial
// client-side page size.
func NewEngine(apiClient Querier, bulkLimit, previewLimit, pageSize int) *Engine {
	if bulkLimit <= 0 {
		bulkLimit = 50
	}
	if previewLimit <= 0 {
		previewLimit = 10
	}
	if pageSize <= 0 {
		pageSize = 10
	}
	return &Engine{
		apiClient:    apiClient,
		log:          logging.Get(logging.CategorySMS),
		bulkLimit:    bulkLimit,
		previewLimit: previewLimit,
		pageSize:     pageSize,
		page:         1,
	}
}

// State returns the current session state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Phone returns the phone the current list belongs to.
func (e *Engine) Phone() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phone
}

// Messages returns the full fetched list. The engine retains ownership.
func (e *Engine) Messages() []types.Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.messages
}

// BeginSearch validates the phone and transitions to Loading. It returns
// a generation token the caller must pass back to ApplyResult; only the
// latest generation is applied, so a stale response for an abandoned
// search cannot overwrite fresher state.
func (e *Engine) BeginSearch(phone string) (uint64, error) {
	if phone == "" {
		return 0, ErrEmptyPhone
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.gen++
	e.state = StateLoading
	e.log.Debug("search issued: phone=%s gen=%d", phone, e.gen)
	return e.gen, nil
}

// Fetch performs the network query for a search begun with BeginSearch.
// Safe to call off the update loop; it touches no mutable engine state.
func (e *Engine) Fetch(ctx context.Context, phone string, slot *int) ([]types.Message, error) {
	return e.apiClient.QueryMessages(ctx, api.MessageQuery{Phone: phone, Slot: slot, Limit: e.bulkLimit})
}

// ApplyResult merges a completed search into the engine. Results for a
// superseded generation are discarded (last request wins); the return
// value reports whether the result was applied. A failed search clears
// the list and returns to Idle, so no stale list can be shown for the
// searched phone.
func (e *Engine) ApplyResult(gen uint64, phone string, msgs []types.Message, err error) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.gen {
		e.log.Debug("discarding stale search result: gen=%d latest=%d", gen, e.gen)
		return false
	}
	if err != nil {
		e.state = StateIdle
		e.phone = ""
		e.messages = nil
		e.page = 1
		e.log.Warn("search failed for %s: %v", phone, err)
		return true
	}
	e.state = StateLoaded
	e.phone = phone
	e.messages = msgs
	e.page = 1
	e.log.Info("search loaded: phone=%s messages=%d", phone, len(msgs))
	return true
}

// Search is the synchronous convenience used by the non-interactive CLI:
// BeginSearch, Fetch and ApplyResult in one call.
func (e *Engine) Search(ctx context.Context, phone string, slot *int) error {
	gen, err := e.BeginSearch(phone)
	if err != nil {
		return err
	}
	msgs, err := e.Fetch(ctx, phone, slot)
	e.ApplyResult(gen, phone, msgs, err)
	return err
}

// Preview fetches the compact device-scoped message preview. It does not
// touch the search session.
func (e *Engine) Preview(ctx context.Context, phone string) ([]types.Message, error) {
	if phone == "" {
		return nil, ErrEmptyPhone
	}
	return e.apiClient.QueryMessages(ctx, api.MessageQuery{Phone: phone, Limit: e.previewLimit})
}

// Send dispatches a send command. Transport, auth and validation failures
// come back as an error; a gateway rejection comes back as an unaccepted
// result with a reason. Callers preserve their compose state in both
// failure shapes so the operator can retry without re-entering data.
func (e *Engine) Send(ctx context.Context, cmd types.SendCommand) (SendResult, error) {
	if err := cmd.Validate(); err != nil {
		return SendResult{}, err
	}
	err := e.apiClient.SendMessage(ctx, cmd)
	if err == nil {
		e.log.Info("send accepted: device=%s target=%s slot=%d", cmd.Phone, cmd.TargetPhone, cmd.Slot)
		return SendResult{Accepted: true}, nil
	}
	if api.IsServerRejected(err) {
		e.log.Warn("send rejected: device=%s: %v", cmd.Phone, err)
		return SendResult{Accepted: false, Reason: err.Error()}, nil
	}
	return SendResult{}, err
}

// DeleteAll deletes the stored messages of every slot of a device,
// concurrently, as one logical operation. If either slot fails the whole
// operation is reported failed; deletions already applied to the other
// slot are not rolled back. On overall success the local list is cleared
// when it belongs to that phone.
func (e *Engine) DeleteAll(ctx context.Context, phone string) error {
	if phone == "" {
		return ErrEmptyPhone
	}

	var g errgroup.Group
	for slot := 0; slot < types.MaxSlots; slot++ {
		g.Go(func() error {
			return e.apiClient.DeleteMessages(ctx, phone, slot)
		})
	}
	if err := g.Wait(); err != nil {
		e.log.Warn("delete-all failed for %s: %v", phone, err)
		return err
	}

	e.mu.Lock()
	if e.phone == phone {
		e.messages = []types.Message{}
		e.page = 1
	}
	e.mu.Unlock()
	e.log.Info("delete-all completed for %s", phone)
	return nil
}

// PageSize returns the current client-side page size.
func (e *Engine) PageSize() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pageSize
}

// Page returns the current 1-based page.
func (e *Engine) Page() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.page
}

// SetPageSize changes the page size and resets to page 1, so a deep page
// under the old size can never resolve to an out-of-range empty page.
func (e *Engine) SetPageSize(size int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if size <= 0 || size == e.pageSize {
		return
	}
	e.pageSize = size
	e.page = 1
}

func (e *Engine) totalPagesLocked() int {
	if len(e.messages) == 0 {
		return 0
	}
	return (len(e.messages) + e.pageSize - 1) / e.pageSize
}

// TotalPages returns ceil(len/pageSize); 0 for an empty list.
func (e *Engine) TotalPages() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.totalPagesLocked()
}

func (e *Engine) setPageLocked(page int) {
	max := e.totalPagesLocked()
	if max == 0 {
		e.page = 1
		return
	}
	if page < 1 {
		page = 1
	}
	if page > max {
		page = max
	}
	e.page = page
}

// SetPage moves to a page, clamped into range. Page 1 is always valid.
func (e *Engine) SetPage(page int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.setPageLocked(page)
}

// NextPage advances one page, clamped to the last page.
func (e *Engine) NextPage() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.setPageLocked(e.page + 1)
}

// PrevPage moves back one page, clamped to page 1.
func (e *Engine) PrevPage() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.setPageLocked(e.page - 1)
}

// PageItems returns the slice of the fetched list for the current page.
func (e *Engine) PageItems() []types.Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	start := (e.page - 1) * e.pageSize
	if start >= len(e.messages) {
		return nil
	}
	end := start + e.pageSize
	if end > len(e.messages) {
		end = len(e.messages)
	}
	return e.messages[start:end]
}

// RowKey builds a stable display identity for a result row. The positional
// index is part of the key because two entries can collide on every
// semantic field, duplicate timestamps included.
func RowKey(m types.Message, index int) string {
	return fmt.Sprintf("%s|%d|%s|%d#%d", m.Phone, m.Slot, m.Sender, m.Timestamp, index)
}
