package realtime

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/tazhibayda/townboat/internal/actorset"
	"github.com/tazhibayda/townboat/internal/domain"
	"github.com/tazhibayda/townboat/internal/log"
	"github.com/tazhibayda/townboat/internal/metrics"
	"github.com/tazhibayda/townboat/internal/repo"
	"github.com/tazhibayda/townboat/internal/view"
)

// Inbound is a message from the client.
type Inbound struct {
	Type       string            `json:"type"` // listen | unlisten | search | action | signout | h
	Target     string            `json:"target,omitempty"`
	Collection string            `json:"collection,omitempty"`
	Filters    view.Filters      `json:"filters,omitempty"`
	Where      map[string]string `json:"where,omitempty"`
	OrderBy    string            `json:"orderBy,omitempty"`
	Desc       bool              `json:"desc,omitempty"`
	Limit      int64             `json:"limit,omitempty"`
	Text       string            `json:"text,omitempty"`
	view.Action
}

// Outbound is a message to the client.
type Outbound struct {
	Type        string       `json:"type"` // auth | view | result | error
	Target      string       `json:"target,omitempty"`
	View        *view.View   `json:"view,omitempty"`
	User        *view.Viewer `json:"user,omitempty"`
	Action      *view.Action `json:"action,omitempty"`
	Outcome     string       `json:"outcome,omitempty"`
	Error       string       `json:"error,omitempty"`
	NeedsSignIn bool         `json:"needsSignIn,omitempty"`
}

type Mutator interface {
	Toggle(ctx context.Context, local actorset.Local, collection, id, actor string) actorset.Result
	Ensure(ctx context.Context, local actorset.Local, collection, id, actor string, member bool) actorset.Result
	Vote(ctx context.Context, local actorset.Local, pollID string, option int, actor string) actorset.Result
}

// Services are the collaborators a session dispatches actions to.
type Services struct {
	Mutator     Mutator
	Connections interface {
		Respond(ctx context.Context, id, actor, action string) error
	}
	Records interface {
		Delete(ctx context.Context, collection, id string, who view.Viewer) error
	}
	Bookmarks interface {
		Add(userID, recordID string)
		Remove(userID, recordID string)
	}
	Reader interface {
		Display(ctx context.Context, m *domain.ChatMessage, viewer string) (bool, error)
	}
	Purger interface {
		PurgeClubMessages(ctx context.Context, clubID, author string) (int64, error)
	}
	// Clubs resolves club records for the chat membership check.
	Clubs interface {
		GetRecord(ctx context.Context, collection, id string) (*domain.Record, error)
	}
}

// Listable collections and the field their view is grouped by.
var listable = map[string]string{
	domain.ColBusinesses:   "status",
	domain.ColDeals:        "",
	domain.ColPosts:        "",
	domain.ColComments:     "",
	domain.ColPolls:        "",
	domain.ColClubs:        "",
	domain.ColUsers:        "",
	domain.ColConnections:  "status",
	domain.ColChatMessages: "",
}

// Session is the page-scoped state of one realtime connection: the viewer,
// the filters of each list and, through the manager, its snapshots.
type Session struct {
	ctx  context.Context
	svc  Services
	sink func(Outbound) error
	mgr  *Manager
	disp *view.Dispatcher[Outbound]

	mu      sync.Mutex
	viewer  view.Viewer
	filters map[string]view.Filters
}

func NewSession(ctx context.Context, src Source, svc Services, viewer view.Viewer, sink func(Outbound) error) *Session {
	s := &Session{ctx: ctx, svc: svc, sink: sink, viewer: viewer, filters: map[string]view.Filters{}}
	s.mgr = NewManager(src, s.render)
	s.disp = s.dispatcher()
	metrics.Sessions.Inc()
	return s
}

func (s *Session) Viewer() view.Viewer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewer
}

// Announce sends the current user; it is the session's "user changed" event.
func (s *Session) Announce() error {
	v := s.Viewer()
	return s.send(Outbound{Type: "auth", User: &v})
}

// SignOut drops the viewer and re-renders every list for a signed-out user.
func (s *Session) SignOut() error {
	s.mu.Lock()
	s.viewer = view.Viewer{}
	s.mu.Unlock()
	for _, t := range s.mgr.Targets() {
		s.mgr.Rerender(t)
	}
	return s.Announce()
}

func (s *Session) Handle(ctx context.Context, in Inbound) error {
	switch in.Type {
	case "listen":
		return s.listen(ctx, in)
	case "unlisten":
		s.mgr.Unsubscribe(in.Target)
		return nil
	case "search":
		s.mu.Lock()
		f := s.filters[in.Target]
		f.Search = in.Text
		s.filters[in.Target] = f
		s.mu.Unlock()
		if !s.mgr.Rerender(in.Target) {
			return s.fail(in.Target, fmt.Errorf("%w: no list %q", domain.ErrNotFound, in.Target))
		}
		return nil
	case "action":
		// the action's collection shares its json key with the envelope
		if in.Action.Collection == "" {
			in.Action.Collection = in.Collection
		}
		return s.send(s.disp.Dispatch(ctx, in.Action))
	case "signout":
		return s.SignOut()
	case "h":
		return nil
	default:
		return s.fail(in.Target, fmt.Errorf("%w: message type %q", domain.ErrValidation, in.Type))
	}
}

func (s *Session) listen(ctx context.Context, in Inbound) error {
	if in.Target == "" {
		in.Target = in.Collection
	}
	q, err := s.query(ctx, in)
	if err != nil {
		return s.fail(in.Target, err)
	}
	s.mu.Lock()
	s.filters[in.Target] = in.Filters
	s.mu.Unlock()
	s.mgr.Subscribe(ctx, in.Target, q)
	return nil
}

// query builds the store query of a listen request and checks the viewer may see it.
func (s *Session) query(ctx context.Context, in Inbound) (repo.Query, error) {
	if _, ok := listable[in.Collection]; !ok {
		return repo.Query{}, fmt.Errorf("%w: collection %q", domain.ErrValidation, in.Collection)
	}
	who := s.Viewer()
	eq := in.Filters.Remote()
	for k, v := range in.Where {
		eq[k] = v
	}

	switch in.Collection {
	case domain.ColBusinesses:
		// unapproved listings reach admins and their owner only
		if !who.Admin && (who.ID == "" || in.Where["ownerId"] != who.ID) {
			eq["status"] = domain.StatusApproved
		}
	case domain.ColChatMessages:
		if who.ID == "" {
			return repo.Query{}, domain.ErrUnauthenticated
		}
		chatID, clubID := in.Where["chatId"], in.Where["clubId"]
		if id, ok := strings.CutPrefix(chatID, "club_"); ok && clubID == "" {
			clubID = id
		}
		switch {
		case clubID != "":
			if err := s.member(ctx, clubID, who.ID); err != nil {
				return repo.Query{}, err
			}
			eq["chatId"] = "club_" + clubID
		case chatID != "" && slices.Contains(strings.Split(chatID, "_"), who.ID):
		default:
			return repo.Query{}, domain.ErrForbidden
		}
	case domain.ColConnections:
		if who.ID == "" {
			return repo.Query{}, domain.ErrUnauthenticated
		}
		if in.Where["to"] != who.ID && in.Where["from"] != who.ID {
			return repo.Query{}, domain.ErrForbidden
		}
	}

	return repo.Query{
		Collection: in.Collection,
		Eq:         eq,
		OrderBy:    in.OrderBy,
		Desc:       in.Desc,
		Limit:      in.Limit,
	}, nil
}

func (s *Session) member(ctx context.Context, clubID, user string) error {
	if s.svc.Clubs == nil {
		return domain.ErrForbidden
	}
	club, err := s.svc.Clubs.GetRecord(ctx, domain.ColClubs, clubID)
	if err != nil {
		return err
	}
	if !slices.Contains(club.Strings("members"), user) {
		return fmt.Errorf("%w: not a member of the club", domain.ErrForbidden)
	}
	return nil
}

func (s *Session) render(snap Snapshot) {
	s.mu.Lock()
	f := s.filters[snap.Target]
	who := s.viewer
	s.mu.Unlock()

	in := view.Input{
		Target:     snap.Target,
		Collection: snap.Query.Collection,
		State:      snap.State,
		Records:    snap.Records,
		Filters:    f,
		Viewer:     who,
		GroupField: listable[snap.Query.Collection],
	}
	if snap.Err != nil {
		in.Error = "failed to load"
	}
	v := view.Render(in)
	if err := s.send(Outbound{Type: "view", Target: snap.Target, View: &v}); err != nil {
		log.L().Debug("view not delivered", zap.String("target", snap.Target), zap.Error(err))
	}
	if snap.Query.Collection == domain.ColChatMessages && who.ID != "" {
		s.markDisplayed(v, who.ID)
	}
}

// markDisplayed starts expiry of messages the viewer has just been shown.
func (s *Session) markDisplayed(v view.View, viewer string) {
	if s.svc.Reader == nil {
		return
	}
	for _, it := range v.Items {
		r := domain.Record{ID: it.ID, Collection: domain.ColChatMessages, Fields: it.Fields}
		oid, _ := primitive.ObjectIDFromHex(it.ID)
		m := &domain.ChatMessage{ID: oid, From: r.String("from"), ClubID: r.String("clubId"), ReadBy: r.Strings("readBy")}
		if !m.NeedsRead(viewer) {
			continue
		}
		if _, err := s.svc.Reader.Display(s.ctx, m, viewer); err != nil {
			log.L().Warn("mark read failed", zap.String("message", it.ID), zap.Error(err))
		}
	}
}

func (s *Session) fail(target string, err error) error {
	return s.send(Outbound{Type: "error", Target: target, Error: err.Error(),
		NeedsSignIn: errors.Is(err, domain.ErrUnauthenticated)})
}

func (s *Session) send(o Outbound) error {
	if s.sink == nil {
		return nil
	}
	return s.sink(o)
}

// Close cancels every subscription and purges the viewer's club chat
// messages. The purge is best effort.
func (s *Session) Close(ctx context.Context) {
	var clubs []string
	for _, t := range s.mgr.Targets() {
		if snap, ok := s.mgr.Snapshot(t); ok && snap.Query.Collection == domain.ColChatMessages {
			if id, ok := strings.CutPrefix(fmt.Sprint(snap.Query.Eq["chatId"]), "club_"); ok {
				clubs = append(clubs, id)
			}
		}
	}
	s.mgr.Close()
	metrics.Sessions.Dec()

	who := s.Viewer()
	if s.svc.Purger == nil || who.ID == "" {
		return
	}
	for _, club := range clubs {
		if _, err := s.svc.Purger.PurgeClubMessages(ctx, club, who.ID); err != nil {
			log.L().Warn("club chat purge failed", zap.String("club", club), zap.Error(err))
		}
	}
}
