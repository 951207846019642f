package constants

const (
	Create      = "CREATE"
	Update      = "UPDATE"
	Delete      = "DELETE"
	Register    = "REGISTER"
	Resolve     = "RESOLVE"
	Attach      = "ATTACH"
	AddBooks    = "ADD_BOOKS"
	RemoveBooks = "REMOVE_BOOKS"
)
