package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocalSignal(t *testing.T) {
	ctx := context.Background()
	s := NewLocalSignal()
	posts, cancelPosts := s.Subscribe(ctx, "posts")
	clubs, cancelClubs := s.Subscribe(ctx, "clubs")
	defer cancelClubs()

	// bursts coalesce into one pending wake-up
	_ = s.Publish(ctx, "posts")
	_ = s.Publish(ctx, "posts")
	assert.Len(t, posts, 1)
	assert.Len(t, clubs, 0)
	<-posts

	cancelPosts()
	cancelPosts()
	_ = s.Publish(ctx, "posts")
	assert.Len(t, posts, 0, "cancelled subscribers are not signalled")
}
