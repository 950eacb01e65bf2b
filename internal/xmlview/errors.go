package xmlview

import "errors"

// ErrUnknownView is returned for a view name other than static, dynamic or cyclic.
var ErrUnknownView = errors.New("xmlview: unknown view")
