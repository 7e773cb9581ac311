package models

// UserFriends represents a directed friend link: UserID asked FriendID.
// The link becomes a friendship once the target sets IsApproved.
type UserFriends struct {
	BaseModel
	UserID     uint `gorm:"not null;uniqueIndex:idx_user_friends_pair"`
	User       User `gorm:"foreignKey:UserID"`
	FriendID   uint `gorm:"not null;uniqueIndex:idx_user_friends_pair;index"`
	Friend     User `gorm:"foreignKey:FriendID"`
	IsApproved bool `gorm:"not null"`
}

// TableName 指定 UserFriends 模型的表名。
func (UserFriends) TableName() string {
	return "user_friends"
}

// HasParticipant reports whether userID is either side of the link.
func (f *UserFriends) HasParticipant(userID uint) bool {
	return f.UserID == userID || f.FriendID == userID
}

// OtherParticipant returns the id of the side that is not userID.
func (f *UserFriends) OtherParticipant(userID uint) uint {
	if f.UserID == userID {
		return f.FriendID
	}
	return f.UserID
}

// UserFriendsView is the API shape of a link.
type UserFriendsView struct {
	ID          uint   `json:"id"`
	UserEmail   string `json:"user_email"`
	FriendEmail string `json:"friend_email"`
	IsApproved  bool   `json:"is_approved"`
}

// View requires User and Friend to be loaded.
func (f *UserFriends) View() UserFriendsView {
	return UserFriendsView{
		ID:          f.ID,
		UserEmail:   f.User.Email,
		FriendEmail: f.Friend.Email,
		IsApproved:  f.IsApproved,
	}
}
