// Package httpapi exposes analysis submission and lookup over HTTP.
//
// Routes:
//
//	POST /analyze-compatibility     multipart: resume_file, linkedin_profile,
//	                                career_goals, company_data,
//	                                job_descriptions, company_urls
//	GET  /analysis/{id}             full record
//	GET  /analysis/{id}/summary     summary view
//	GET  /health
//	GET  /
package httpapi
