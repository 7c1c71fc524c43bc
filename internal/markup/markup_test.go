package markup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractRefsDocumentOrder(t *testing.T) {
	doc := []byte(`<!doctype html>
<html>
<head>
  <link rel="stylesheet" href="styles/site.css">
  <link rel="icon" href="favicon.ico">
  <script src="vendor/analytics.js"></script>
</head>
<body>
  <script src="./main.js"></script>
  <script>inline();</script>
</body>
</html>`)

	refs := NewScanner().ExtractRefs(doc)
	assert.Equal(t, []string{"styles/site.css", "vendor/analytics.js", "./main.js"}, refs)
}

func TestExtractRefsSkipsExternal(t *testing.T) {
	doc := []byte(`<html><head>
<script src="https://cdn.example.com/lib.js"></script>
<script src="//cdn.example.com/lib2.js"></script>
<link rel="stylesheet" href="data:text/css,body{}">
<script src="app.js"></script>
</head></html>`)

	refs := NewScanner().ExtractRefs(doc)
	assert.Equal(t, []string{"app.js"}, refs)
}

func TestExtractRefsEmptyDocument(t *testing.T) {
	assert.Empty(t, NewScanner().ExtractRefs(nil))
}
