package domain

// QueryStage names a step of the query pipeline.
type QueryStage string

const (
	QueryStageChunking     QueryStage = "chunking"
	QueryStageEmbedding    QueryStage = "embedding"
	QueryStageAggregating  QueryStage = "aggregating"
	QueryStageRetrieving   QueryStage = "retrieving"
	QueryStageSynthesizing QueryStage = "synthesizing"
	QueryStageDone         QueryStage = "done"
	QueryStageFailed       QueryStage = "failed"
)

// queryStageOrder lists the non-terminal stages in execution order.
var queryStageOrder = []QueryStage{
	QueryStageChunking,
	QueryStageEmbedding,
	QueryStageAggregating,
	QueryStageRetrieving,
	QueryStageSynthesizing,
	QueryStageDone,
}

// Next returns the stage that follows s. Done and Failed are terminal and return themselves.
func (s QueryStage) Next() QueryStage {
	for i, stage := range queryStageOrder {
		if stage == s && i+1 < len(queryStageOrder) {
			return queryStageOrder[i+1]
		}
	}
	return s
}

// IsTerminal reports whether the pipeline has stopped.
func (s QueryStage) IsTerminal() bool {
	return s == QueryStageDone || s == QueryStageFailed
}
