// Package requestid tags every request with a correlation id.
//
// A client supplied X-Request-ID header is reused when it is short and made of
// safe characters; otherwise a UUID is generated. The id is echoed in the
// response header, stored in the request context and picked up by the logger
// through LoggerExtractor.
package requestid
