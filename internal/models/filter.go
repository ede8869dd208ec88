package models

// UserFilter задаёт параметры выборки списка пользователей.
type UserFilter struct {
	Search string // Строка поиска, разбивается на слова
	Limit  int    // 0: без ограничения
	Offset int
}

// UserPage: страница выборки вместе с общим количеством записей.
type UserPage struct {
	Users []*User
	Count int
}

// AutocompleteItem: элемент ответа автодополнения.
type AutocompleteItem struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
