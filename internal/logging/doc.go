// Package logging provides leveled logging on top of the standard log package.
//
// The level is read once from the DEBUG and LOG_LEVEL environment variables;
// DEBUG=true forces debug output regardless of LOG_LEVEL.
package logging


