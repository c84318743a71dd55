package service

import "errors"

// ErrNotAuthenticated is returned by authorized operations invoked without an
// active session. No request is sent.
var ErrNotAuthenticated = errors.New("not signed in")

// SignInFailedNotice is shown when the consent URL cannot be obtained.
const SignInFailedNotice = "Failed to start Google sign-in. Is the back-end running?"
