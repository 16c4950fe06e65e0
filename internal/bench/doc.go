// Package bench times repeated GET requests against a pi endpoint.
//
// A [Runner] issues warmup requests that are not recorded, then measured
// rounds whose latencies are reduced to a median. Failed requests are retried
// after a delay until too many have failed.
package bench
