//go:build !unix

package mmap

import "os"

func osMap(_ *os.File, _ int) ([]byte, func([]byte) error, error) {
	return nil, nil, ErrUnsupported
}

func osAdvise(_ []byte, _ AccessPattern) error {
	return nil
}
