package scrape

import "fmt"

// ItemError は1商品の処理失敗を表す回復可能なエラー
// 取得層の失敗（致命的）と静的に区別するための型
type ItemError struct {
	Handle string
	Title  string
	Err    error
}

func (e *ItemError) Error() string {
	label := e.Title
	if label == "" {
		label = e.Handle
	}
	return fmt.Sprintf("failed to process item %q: %v", label, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}
