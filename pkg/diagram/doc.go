// Package diagram generates graphs from short plain-text descriptions.
//
// It backs POST /api/diagram. The rules are deliberately small; see
// [Generate] for the accepted forms.
package diagram
