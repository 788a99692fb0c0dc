package domain

type (
	RoomName string
	RoomID   string
)

// Room is a durably persisted chat channel. Name is globally unique,
// enforced by the store's unique index. The creator is always a member
// at creation; membership afterwards changes only through coordinator
// transitions.
type Room struct {
	ID      RoomID       `gorm:"primaryKey;type:text" json:"id"`
	Name    RoomName     `gorm:"uniqueIndex;not null;type:text" json:"name"`
	Creator string       `gorm:"not null;index;type:text" json:"creator"`
	Members []RoomMember `gorm:"foreignKey:RoomID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Room) TableName() string { return "rooms" }

// RoomMember is one row of a room's member set. The composite primary
// key gives addMember/removeMember set semantics at the schema level.
type RoomMember struct {
	RoomID   RoomID `gorm:"primaryKey;type:text" json:"room_id"`
	Username string `gorm:"primaryKey;index;type:text" json:"username"`
}

func (RoomMember) TableName() string { return "room_members" }

// HasMember reports whether username is in the loaded member set.
func (r *Room) HasMember(username string) bool {
	for _, m := range r.Members {
		if m.Username == username {
			return true
		}
	}
	return false
}

// RoomSummary is the read-only view returned by room listings.
type RoomSummary struct {
	ID   RoomID   `json:"id"`
	Name RoomName `json:"name"`
}
