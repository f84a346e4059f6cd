// Package activitylog writes a scripted install-and-start transcript into
// the terminal while the real command runs, so the user sees progress
// before the dev server is up.
//
// Catalog holds one Script per project kind. Timeline schedules a script's
// lines on a clock: install lines at small random increments, a fixed
// pause, then start lines at a fixed step. Cancel stops every pending line
// and no line scheduled before Cancel is written after it returns.
package activitylog
