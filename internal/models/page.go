package models

// UserPage — страница результатов поиска пользователей.
type UserPage struct {
	Users      []User
	Total      int64
	Page       int
	Limit      int
	TotalPages int64
}
