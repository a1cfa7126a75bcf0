package schema

// Attribute names.
const (
	AttrPK            = "pk"
	AttrSK            = "sk"
	AttrChildKey      = "child_key"
	AttrChildStoryKey = "child_story_key"
	AttrFavoriteKey   = "favorite_key"
	AttrLastRead      = "last_read"
	AttrEventID       = "event_id"
	AttrEventSort     = "event_sort"
	AttrEventType     = "event_type"
	AttrChildID       = "child_id"
	AttrUserID        = "user_id"
)

// Default table and index names.
const (
	DefaultProgressTable = "StoryProgress"
	DefaultEventsTable   = "StoryInteractions"
	DefaultStoriesTable  = "Stories"
	DefaultChildrenTable = "Children"

	DefaultChildProgressIndex    = "child-progress-index"
	DefaultChildEventsIndex      = "child-events-index"
	DefaultChildStoryEventsIndex = "child-story-events-index"
	DefaultFavoriteIndex         = "child-story-favorite-index"
)

// Tables names the physical tables and indexes. Every field can be overridden
// from configuration.
type Tables struct {
	Progress string
	Events   string
	Stories  string
	Children string

	ChildProgressIndex    string
	ChildEventsIndex      string
	ChildStoryEventsIndex string
	FavoriteIndex         string
}

// DefaultTables returns the stock table layout
func DefaultTables() Tables {
	return Tables{
		Progress:              DefaultProgressTable,
		Events:                DefaultEventsTable,
		Stories:               DefaultStoriesTable,
		Children:              DefaultChildrenTable,
		ChildProgressIndex:    DefaultChildProgressIndex,
		ChildEventsIndex:      DefaultChildEventsIndex,
		ChildStoryEventsIndex: DefaultChildStoryEventsIndex,
		FavoriteIndex:         DefaultFavoriteIndex,
	}
}

// IndexDeclaration describes one secondary index for provisioning and docs
type IndexDeclaration struct {
	Table        string
	Name         string
	PartitionKey string
	SortKey      string
	Sparse       bool
}

// Indexes lists every secondary index the stores query
func (t Tables) Indexes() []IndexDeclaration {
	return []IndexDeclaration{
		{Table: t.Progress, Name: t.ChildProgressIndex, PartitionKey: AttrChildKey, SortKey: AttrLastRead},
		{Table: t.Events, Name: t.ChildEventsIndex, PartitionKey: AttrChildKey, SortKey: AttrEventSort},
		{Table: t.Events, Name: t.ChildStoryEventsIndex, PartitionKey: AttrChildStoryKey, SortKey: AttrEventSort},
		{Table: t.Events, Name: t.FavoriteIndex, PartitionKey: AttrFavoriteKey, SortKey: AttrEventSort, Sparse: true},
		{Table: t.Stories, Name: "", PartitionKey: AttrPK, SortKey: AttrSK},
	}
}
