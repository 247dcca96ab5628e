package model

import "github.com/rotisserie/eris"

// ErrNotFound is returned by repositories when a sponsor does not exist.
var ErrNotFound = eris.New("sponsor not found")
