/*
Package dns keeps one authoritative A record per application pointed at a
live endpoint.

RecordReconciler drives a Provider through the smallest change that makes
"<app>.<zone>" resolve to the selected address:

	zone name ──ZoneID──► zone ID (exactly one match, else ErrZoneNotFound /
	                                ErrZoneAmbiguous)
	ListARecords(subdomain)
	  record holds the address   ──► no write          (ActionNone)
	  record holds another one   ──► UpdateRecord, same ID (ActionUpdate)
	  no record                  ──► CreateRecord      (ActionCreate)
	  more than one record       ──► keep one, DeleteRecord the rest

Records are always written with type A, the configured TTL (120 seconds by
default) and proxying off. Nothing is cached between calls; the provider is
the source of truth.

CloudflareProvider speaks the Cloudflare v4 REST dialect with a bearer token.
The base URL is configurable, so any compatible service works:

	GET    /zones?name=<zone>&account.id=<account>
	GET    /zones/<id>/dns_records?type=A&name=<subdomain>
	POST   /zones/<id>/dns_records
	PUT    /zones/<id>/dns_records/<record>
	DELETE /zones/<id>/dns_records/<record>

Every response carries {"success", "errors", "result"}. A response with
success=false, or a non-2xx status, becomes an *APIError holding the
provider's error list.

Subdomain canonicalises and validates names with github.com/miekg/dns.
*/
package dns
