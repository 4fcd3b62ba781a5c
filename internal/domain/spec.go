package domain

// Collection names in the document store.
const (
	ColBusinesses    = "businesses"
	ColDeals         = "deals"
	ColPosts         = "posts"
	ColComments      = "comments"
	ColPolls         = "polls"
	ColClubs         = "clubs"
	ColUsers         = "users"
	ColConnections   = "connections"
	ColChatMessages  = "chat_messages"
	ColNotifications = "notifications"
)

// ActorSetSpec describes an actor-set field and the counter kept equal to its length.
type ActorSetSpec struct {
	Action     string
	SetField   string
	CountField string
	// Reversible actions toggle; terminal ones reject a second attempt.
	Reversible bool
	// Limit caps the set size when > 0.
	Limit int
}

const DefaultClubCap = 500

var actorSets = map[string]ActorSetSpec{
	ColBusinesses: {Action: "upvote", SetField: "upvotedBy", CountField: "upvoteCount", Reversible: true},
	ColDeals:      {Action: "upvote", SetField: "upvotedBy", CountField: "upvoteCount", Reversible: true},
	ColPosts:      {Action: "like", SetField: "likedBy", CountField: "likeCount", Reversible: true},
	ColComments:   {Action: "like", SetField: "likedBy", CountField: "likeCount", Reversible: true},
	ColClubs:      {Action: "join", SetField: "members", CountField: "memberCount", Reversible: true, Limit: DefaultClubCap},
}

// ActorSetFor returns the toggle spec registered for a collection.
func ActorSetFor(collection string) (ActorSetSpec, bool) {
	s, ok := actorSets[collection]
	return s, ok
}

// SetClubCap overrides the club member limit; used by configuration at startup.
func SetClubCap(n int) {
	if n <= 0 {
		return
	}
	s := actorSets[ColClubs]
	s.Limit = n
	actorSets[ColClubs] = s
}

// SearchFields lists the fields matched by free-text search per collection.
var SearchFields = map[string][]string{
	ColBusinesses:  {"name", "description", "category", "town"},
	ColDeals:       {"title", "description", "businessName"},
	ColPosts:       {"content", "authorName"},
	ColComments:    {"content", "authorName"},
	ColPolls:       {"question"},
	ColClubs:       {"name", "description"},
	ColUsers:       {"displayName", "hometown"},
	ColConnections: {"fromName", "toName"},
}
