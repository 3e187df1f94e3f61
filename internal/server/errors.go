package server

import "errors"

var errBucketMissing = errors.New("bucket does not exist")
