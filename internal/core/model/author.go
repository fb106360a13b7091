package model

// Author identifies who wrote a review. Only the values below are accepted.
type Author string

const (
	AuthorDatta  Author = "Datta"
	AuthorFriend Author = "Friend"
	AuthorGuest  Author = "Guest"
)

// Authors returns every accepted author in display order.
func Authors() []Author {
	return []Author{AuthorDatta, AuthorFriend, AuthorGuest}
}

// ParseAuthor maps a submitted form value to an Author.
func ParseAuthor(s string) (Author, bool) {
	a := Author(s)
	return a, a.Valid()
}

func (a Author) Valid() bool {
	switch a {
	case AuthorDatta, AuthorFriend, AuthorGuest:
		return true
	}
	return false
}

func (a Author) String() string {
	return string(a)
}
