// Package errs defines the error kinds the report understands.
//
// Every failure that leaves the database layer is either already an *Error
// carrying a Kind, or can be classified into one by Classify. The entry point
// dispatches on that Kind to pick a message, so the set of kinds is closed:
//   - KindConnection: the connection could not be established
//   - KindQuery: a statement failed on the server (constraint, syntax, ...)
//   - KindData: a value could not be represented or converted
//   - KindSystem: the operating system failed us (files, sockets, signals)
//
// Anything else is KindUnknown.
package errs
