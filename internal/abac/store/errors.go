// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meshnode Contributors

package store

import "github.com/samber/oops"

func errStorage(op string, err error) error {
	return oops.Code("STORAGE_ERROR").
		With("op", op).
		Wrapf(err, "policy store operation failed")
}
