package invocation

import _ "embed"

//go:embed docs.html
var docsPage string

// Documentation returns the static API description page.
func Documentation() Response {
	return Response{
		StatusCode: 200,
		Headers: map[string]string{
			HeaderContentType: ContentTypeHTML,
			HeaderAllowOrigin: "*",
		},
		Body: docsPage,
	}
}
