package retrieval

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
)

// Index is an in-memory TF-IDF index over text chunks. It is safe for
// concurrent Retrieve calls; Reset swaps the contents under a write lock.
type Index struct {
	mu      sync.RWMutex
	chunks  []string
	vectors []map[string]float64
	norms   []float64
	df      map[string]int
}

// NewIndex indexes chunks in the given order.
func NewIndex(chunks []string) *Index {
	idx := &Index{}
	idx.Reset(chunks)
	return idx
}

// BuildIndex splits text with splitter (nil means NewSplitter) and indexes the chunks.
func BuildIndex(text string, splitter *Splitter) *Index {
	if splitter == nil {
		splitter = NewSplitter()
	}
	return NewIndex(splitter.Split(text))
}

// Reset replaces the indexed chunks.
func (idx *Index) Reset(chunks []string) {
	copied := make([]string, len(chunks))
	copy(copied, chunks)

	df := make(map[string]int)
	vectors := make([]map[string]float64, len(copied))
	for i, chunk := range copied {
		tf := termFrequencies(chunk)
		for term := range tf {
			df[term]++
		}
		vectors[i] = tf
	}

	norms := make([]float64, len(copied))
	for i, tf := range vectors {
		var norm float64
		for term, freq := range tf {
			weight := tfidfWeight(freq, df[term], len(copied))
			tf[term] = weight
			norm += weight * weight
		}
		norms[i] = math.Sqrt(norm)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.chunks = copied
	idx.vectors = vectors
	idx.norms = norms
	idx.df = df
}

// Len returns the number of indexed chunks.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.chunks)
}

// Retrieve returns the k chunks most similar to query by cosine similarity.
// Like a vector store it always returns min(k, Len()) chunks; chunks with
// equal score (including zero) keep document order.
func (idx *Index) Retrieve(ctx context.Context, query string, k int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	n := len(idx.chunks)
	if n == 0 {
		return nil, nil
	}

	qtf := termFrequencies(query)
	var qnorm float64
	for term, freq := range qtf {
		weight := tfidfWeight(freq, idx.df[term], n)
		qtf[term] = weight
		qnorm += weight * weight
	}
	qnorm = math.Sqrt(qnorm)

	type scored struct {
		pos   int
		score float64
	}
	results := make([]scored, n)
	for i := range idx.chunks {
		results[i] = scored{pos: i}
		if qnorm == 0 || idx.norms[i] == 0 {
			continue
		}
		var dot float64
		for term, weight := range qtf {
			dot += weight * idx.vectors[i][term]
		}
		results[i].score = dot / (qnorm * idx.norms[i])
	}

	sort.SliceStable(results, func(a, b int) bool {
		return results[a].score > results[b].score
	})

	if k > n {
		k = n
	}
	passages := make([]string, k)
	for i := 0; i < k; i++ {
		passages[i] = idx.chunks[results[i].pos]
	}
	return passages, nil
}

func termFrequencies(text string) map[string]float64 {
	tf := make(map[string]float64)
	for _, term := range tokenize(text) {
		tf[term]++
	}
	return tf
}

var punctuation = strings.NewReplacer(
	".", " ", ",", " ", "\n", " ", "\t", " ", ":", " ", ";", " ",
	"-", " ", "_", " ", "(", " ", ")", " ", "'", " ", "\"", " ",
	"/", " ", "?", " ", "!", " ", "[", " ", "]", " ",
)

func tokenize(text string) []string {
	return strings.Fields(punctuation.Replace(strings.ToLower(text)))
}

// tfidfWeight uses smoothed idf; terms absent from the corpus weigh zero.
func tfidfWeight(freq float64, df, total int) float64 {
	if df == 0 {
		return 0
	}
	idf := math.Log((float64(total)+1)/(float64(df)+1)) + 1
	return freq * idf
}
