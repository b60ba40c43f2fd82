// Package staffbadge issues quick-login tokens for staff and prints them as
// QR badges.
//
// A token is "<credential id>.<secret>". Only a bcrypt hash of the secret
// is stored. Issuing and logging in both require the quick_login_token
// feature on the governing tier; the QR image is rendered only when the
// tier also includes staff_badge_printing. Login takes the principal
// governing the terminal and rejects tokens issued under any other one; it
// yields an rbac.DelegatedSession started with rbac.LoginMethodToken.
package staffbadge
