// Package constant holds names and defaults shared by several authorizer packages.
package constant
