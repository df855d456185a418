package repositories

// Not-found and already-exists conditions are expected control flow for the
// game engine and the chat commands, so each kind gets its own error type
// that callers can test for.

type ErrWordNotFound struct {
}

func (e *ErrWordNotFound) Error() string {
	return "word not found"
}

type ErrWordExists struct {
}

func (e *ErrWordExists) Error() string {
	return "word already exists"
}

type ErrUserNotFound struct {
}

func (e *ErrUserNotFound) Error() string {
	return "user not found"
}

type ErrUserExists struct {
}

func (e *ErrUserExists) Error() string {
	return "user already exists"
}

type ErrCategoryNotFound struct {
}

func (e *ErrCategoryNotFound) Error() string {
	return "category not found"
}

type ErrMetaNotFound struct {
}

func (e *ErrMetaNotFound) Error() string {
	return "meta key not found"
}

type ErrRedeemNotFound struct {
}

func (e *ErrRedeemNotFound) Error() string {
	return "redeem not found"
}

type ErrRedeemExists struct {
}

func (e *ErrRedeemExists) Error() string {
	return "redeem already exists"
}

func IsWordNotFound(err error) bool {
	_, ok := err.(*ErrWordNotFound)
	return ok
}

func IsUserNotFound(err error) bool {
	_, ok := err.(*ErrUserNotFound)
	return ok
}

func IsUserExists(err error) bool {
	_, ok := err.(*ErrUserExists)
	return ok
}

func IsMetaNotFound(err error) bool {
	_, ok := err.(*ErrMetaNotFound)
	return ok
}

func IsRedeemNotFound(err error) bool {
	_, ok := err.(*ErrRedeemNotFound)
	return ok
}

// IsNotFound reports whether err is any of the not-found conditions.
func IsNotFound(err error) bool {
	switch err.(type) {
	case *ErrWordNotFound, *ErrUserNotFound, *ErrCategoryNotFound,
		*ErrMetaNotFound, *ErrRedeemNotFound:
		return true
	}
	return false
}
