package elasticsearch

// indexMapping stores the match blobs as wildcard fields, which serve
// infix wildcard queries without scanning every term, and keeps the
// document itself unindexed. key is the sort field for search_after.
const indexMapping = `{
  "settings": {
    "number_of_shards": 1,
    "number_of_replicas": 0
  },
  "mappings": {
    "dynamic": false,
    "properties": {
      "key":          { "type": "keyword" },
      "blob":         { "type": "wildcard" },
      "catalog_blob": { "type": "wildcard" },
      "doc":          { "type": "object", "enabled": false }
    }
  }
}`

// keyMapping adds the sort field to indices created before it existed.
const keyMapping = `{"properties":{"key":{"type":"keyword"}}}`
