package service

import "context"

type testTxRepos struct {
	documents  DocumentRepositoryInterface
	embeddings EmbeddingStoreInterface
}

func (t *testTxRepos) Documents() DocumentRepositoryInterface {
	return t.documents
}

func (t *testTxRepos) Embeddings() EmbeddingStoreInterface {
	return t.embeddings
}

type testTxRunner struct {
	repos  TxRepositories
	called bool
}

func (t *testTxRunner) WithTx(ctx context.Context, fn func(repos TxRepositories) error) error {
	t.called = true
	return fn(t.repos)
}
