//go:build psmdebug

package mailbox

// violation stops debug builds at the offending call site.
func violation(err error) error {
	panic(err)
}
