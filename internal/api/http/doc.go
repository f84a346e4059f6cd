/*
Package http exposes the playground, the starter catalog and the assistant
proxy over a gin router.

Every failure is answered with a JSON body of the form
{"success": false, "error": "..."}; the status code follows the sentinel
error that caused it.
*/
package http
