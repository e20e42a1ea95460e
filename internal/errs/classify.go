package errs

import (
	"context"
	"errors"
	"io/fs"
	"net"
	"os"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"
)

// Classify returns the Kind of err.
//
// Precedence:
//  1. an explicit *Error anywhere in the chain wins
//  2. pgx connection errors are KindConnection
//  3. PostgreSQL server errors are KindData for SQLSTATE class 22
//     (data exceptions) and KindQuery otherwise
//  4. file system, network, syscall and context errors are KindSystem
//
// nil is classified as KindUnknown.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	if k := KindOf(err); k != KindUnknown {
		return k
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return KindConnection
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if len(pgErr.Code) >= 2 && pgErr.Code[:2] == "22" {
			return KindData
		}
		return KindQuery
	}

	var (
		pathErr  *fs.PathError
		linkErr  *os.LinkError
		netErr   *net.OpError
		errno    syscall.Errno
		sysCall  *os.SyscallError
		dnsError *net.DNSError
	)
	switch {
	case errors.As(err, &pathErr),
		errors.As(err, &linkErr),
		errors.As(err, &netErr),
		errors.As(err, &errno),
		errors.As(err, &sysCall),
		errors.As(err, &dnsError),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return KindSystem
	}

	return KindUnknown
}
