package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/tazhibayda/townboat/internal/domain"
	"github.com/tazhibayda/townboat/internal/log"
	"github.com/tazhibayda/townboat/internal/view"
)

type FileDeleter interface {
	DeleteFile(ctx context.Context, p string) error
}

// Records creates, moderates and deletes community content.
type Records struct {
	store RecordStore
	files FileDeleter
	now   func() time.Time
}

func NewRecords(store RecordStore, files FileDeleter) *Records {
	return &Records{store: store, files: files, now: time.Now}
}

// owners lists the fields that name a record's creator.
var owners = []string{"ownerId", "authorId", "from"}

func ownerOf(r *domain.Record) string {
	for _, f := range owners {
		if v := r.String(f); v != "" {
			return v
		}
	}
	return ""
}

func (s *Records) insert(ctx context.Context, collection string, doc any, setID func(primitive.ObjectID)) error {
	if err := check(doc); err != nil {
		return err
	}
	id, err := s.store.Insert(ctx, collection, doc)
	if err != nil {
		return err
	}
	oid, _ := primitive.ObjectIDFromHex(id)
	setID(oid)
	return nil
}

// CreateBusiness submits a listing; it stays pending until an admin approves it.
func (s *Records) CreateBusiness(ctx context.Context, who view.Viewer, b *domain.Business) error {
	if who.ID == "" {
		return domain.ErrUnauthenticated
	}
	now := s.now().UTC()
	b.ID, b.OwnerID, b.Status = primitive.NilObjectID, who.ID, domain.StatusPending
	b.UpvotedBy, b.UpvoteCount = []string{}, 0
	b.CreatedAt, b.UpdatedAt = now, now
	return s.insert(ctx, domain.ColBusinesses, b, func(id primitive.ObjectID) { b.ID = id })
}

// CreateDeal attaches a deal to a business the viewer owns.
func (s *Records) CreateDeal(ctx context.Context, who view.Viewer, d *domain.Deal) error {
	if who.ID == "" {
		return domain.ErrUnauthenticated
	}
	biz, err := s.store.GetRecord(ctx, domain.ColBusinesses, d.BusinessID)
	if err != nil {
		return err
	}
	if biz.String("ownerId") != who.ID && !who.Admin {
		return domain.ErrForbidden
	}
	d.ID, d.OwnerID = primitive.NilObjectID, who.ID
	d.BusinessName = biz.String("name")
	if d.Town == "" {
		d.Town = biz.String("town")
	}
	if d.Category == "" {
		d.Category = biz.String("category")
	}
	d.UpvotedBy, d.UpvoteCount = []string{}, 0
	d.CreatedAt = s.now().UTC()
	return s.insert(ctx, domain.ColDeals, d, func(id primitive.ObjectID) { d.ID = id })
}

func (s *Records) CreatePost(ctx context.Context, who view.Viewer, p *domain.Post) error {
	if who.ID == "" {
		return domain.ErrUnauthenticated
	}
	p.ID, p.AuthorID, p.AuthorName = primitive.NilObjectID, who.ID, who.Name
	p.Content = strings.TrimSpace(p.Content)
	p.LikedBy, p.LikeCount = []string{}, 0
	p.CreatedAt = s.now().UTC()
	return s.insert(ctx, domain.ColPosts, p, func(id primitive.ObjectID) { p.ID = id })
}

// CreateComment adds a comment to a post, or a reply when ParentID is set.
func (s *Records) CreateComment(ctx context.Context, who view.Viewer, c *domain.Comment) error {
	if who.ID == "" {
		return domain.ErrUnauthenticated
	}
	if _, err := s.store.GetRecord(ctx, domain.ColPosts, c.PostID); err != nil {
		return err
	}
	if c.ParentID != "" {
		parent, err := s.store.GetRecord(ctx, domain.ColComments, c.ParentID)
		if err != nil {
			return err
		}
		if parent.String("postId") != c.PostID {
			return fmt.Errorf("%w: reply to a comment of another post", domain.ErrValidation)
		}
	}
	c.ID, c.AuthorID, c.AuthorName = primitive.NilObjectID, who.ID, who.Name
	c.Content = strings.TrimSpace(c.Content)
	c.LikedBy, c.LikeCount = []string{}, 0
	c.CreatedAt = s.now().UTC()
	return s.insert(ctx, domain.ColComments, c, func(id primitive.ObjectID) { c.ID = id })
}

func (s *Records) CreatePoll(ctx context.Context, who view.Viewer, p *domain.Poll) error {
	if who.ID == "" {
		return domain.ErrUnauthenticated
	}
	p.ID, p.AuthorID = primitive.NilObjectID, who.ID
	for i := range p.Options {
		p.Options[i].Votes, p.Options[i].VotedBy = 0, []string{}
	}
	p.CreatedAt = s.now().UTC()
	return s.insert(ctx, domain.ColPolls, p, func(id primitive.ObjectID) { p.ID = id })
}

// CreateClub makes the creator its first member.
func (s *Records) CreateClub(ctx context.Context, who view.Viewer, c *domain.Club) error {
	if who.ID == "" {
		return domain.ErrUnauthenticated
	}
	c.ID, c.OwnerID = primitive.NilObjectID, who.ID
	c.Members, c.MemberCount = []string{who.ID}, 1
	c.CreatedAt = s.now().UTC()
	return s.insert(ctx, domain.ColClubs, c, func(id primitive.ObjectID) { c.ID = id })
}

// Moderate sets a business listing's status. Admin only.
func (s *Records) Moderate(ctx context.Context, who view.Viewer, id, status string) error {
	if who.ID == "" {
		return domain.ErrUnauthenticated
	}
	if !who.Admin {
		return domain.ErrForbidden
	}
	switch status {
	case domain.StatusApproved, domain.StatusRejected, domain.StatusPending:
	default:
		return fmt.Errorf("%w: status %q", domain.ErrValidation, status)
	}
	return s.store.SetFields(ctx, domain.ColBusinesses, id, map[string]any{"status": status}, nil)
}

// Delete removes a record its owner or an admin asked to delete, along with
// its uploaded image.
func (s *Records) Delete(ctx context.Context, collection, id string, who view.Viewer) error {
	if who.ID == "" {
		return domain.ErrUnauthenticated
	}
	rec, err := s.store.GetRecord(ctx, collection, id)
	if err != nil {
		return err
	}
	if ownerOf(rec) != who.ID && !who.Admin {
		return domain.ErrForbidden
	}
	if err := s.store.DeleteRecord(ctx, collection, id); err != nil {
		return err
	}
	if p, ok := strings.CutPrefix(rec.String("imageUrl"), "/files/"); ok && s.files != nil {
		if err := s.files.DeleteFile(ctx, p); err != nil {
			log.Ctx(ctx).Warn("image not deleted", zap.String("path", p), zap.Error(err))
		}
	}
	return nil
}
