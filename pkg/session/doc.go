/*
Package session serializes access to persisted browser histories.

Several routers may share one history store (the server's primary router, the
"sessions" commands, tests). The Manager gives each session ID its own lock so
read-modify-write sequences on a history do not interleave.
*/
package session
