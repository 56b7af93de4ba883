/*
Building and matching the URLs of the API. Every route has a regex, used by
the router, and a builder, used anywhere a link needs to be handed out.
*/
package collaburl

import (
	"net/url"
	"strings"
)

type Q struct {
	Name  string
	Value string
}

type UrlContext struct {
	BaseUrl string
}

func (c *UrlContext) Url(path string, query []Q) string {
	result := strings.TrimRight(c.BaseUrl, "/") + "/" + trim(path)
	if q := encodeQuery(query); q != "" {
		result += "?" + q
	}
	return result
}

func trim(path string) string {
	if len(path) > 0 && path[0] == '/' {
		return path[1:]
	}
	return path
}

func encodeQuery(query []Q) string {
	result := url.Values{}
	for _, q := range query {
		result.Set(q.Name, q.Value)
	}
	return result.Encode()
}
