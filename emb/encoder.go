// Package emb produces sentence embeddings, either locally with an ONNX model
// run through onnxruntime or remotely through an OpenAI-compatible endpoint.
package emb

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
	ort "github.com/yalue/onnxruntime_go"
)

// Config describes the local ONNX model.
type Config struct {
	OrtDLL        string
	ModelPath     string
	TokenizerPath string
	MaxSeqLen     int
	// Dimension overrides the hidden size when the model reports it as dynamic.
	Dimension int
}

// Encoder turns text into an L2-normalized, mask-averaged sentence embedding.
// Encode calls are serialized; one session is shared.
type Encoder struct {
	mu         sync.Mutex
	cfg        Config
	tk         *tokenizer.Tokenizer
	session    *ort.DynamicAdvancedSession
	inputNames []string
	hidden     int
}

var ortEnv struct {
	sync.Mutex
	refs int
}

// Init loads the tokenizer, initializes the onnxruntime environment and opens
// a session on the model.
func (e *Encoder) Init(cfg Config) error {
	if cfg.ModelPath == "" {
		return errors.New("emb: model path is required")
	}
	if cfg.TokenizerPath == "" {
		return errors.New("emb: tokenizer path is required")
	}
	if cfg.MaxSeqLen <= 0 {
		cfg.MaxSeqLen = 512
	}
	tk, err := pretrained.FromFile(cfg.TokenizerPath)
	if err != nil {
		return fmt.Errorf("emb: load tokenizer: %w", err)
	}
	if err := acquireEnvironment(cfg.OrtDLL); err != nil {
		return err
	}
	inputs, outputs, err := ort.GetInputOutputInfo(cfg.ModelPath)
	if err != nil {
		releaseEnvironment()
		return fmt.Errorf("emb: inspect model: %w", err)
	}
	if len(outputs) == 0 {
		releaseEnvironment()
		return errors.New("emb: model has no outputs")
	}
	inputNames := make([]string, 0, len(inputs))
	for _, in := range inputs {
		switch in.Name {
		case "input_ids", "attention_mask", "token_type_ids":
			inputNames = append(inputNames, in.Name)
		}
	}
	if len(inputNames) < 2 {
		releaseEnvironment()
		return fmt.Errorf("emb: model inputs %v lack input_ids/attention_mask", inputs)
	}
	hidden := cfg.Dimension
	if dims := outputs[0].Dimensions; hidden <= 0 && len(dims) > 0 {
		hidden = int(dims[len(dims)-1])
	}
	if hidden <= 0 {
		releaseEnvironment()
		return errors.New("emb: hidden size is dynamic; set the embedding dimension")
	}
	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath, inputNames, []string{outputs[0].Name}, nil)
	if err != nil {
		releaseEnvironment()
		return fmt.Errorf("emb: create session: %w", err)
	}
	e.cfg = cfg
	e.tk = tk
	e.session = session
	e.inputNames = inputNames
	e.hidden = hidden
	return nil
}

// Close releases the session and, for the last encoder, the environment.
func (e *Encoder) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return
	}
	_ = e.session.Destroy()
	e.session = nil
	releaseEnvironment()
}

// Encode embeds a single text.
func (e *Encoder) Encode(text string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return nil, errors.New("emb: encoder is not initialized")
	}
	enc, err := e.tk.EncodeSingle(text, true)
	if err != nil {
		return nil, fmt.Errorf("emb: tokenize: %w", err)
	}
	ids := truncate(enc.GetIds(), e.cfg.MaxSeqLen)
	mask := truncate(enc.GetAttentionMask(), e.cfg.MaxSeqLen)
	types := truncate(enc.GetTypeIds(), e.cfg.MaxSeqLen)
	if len(ids) == 0 {
		return nil, errors.New("emb: tokenizer produced no tokens")
	}
	if len(types) != len(ids) {
		types = make([]int, len(ids))
	}
	seq := int64(len(ids))
	shape := ort.NewShape(1, seq)

	feeds := map[string][]int{
		"input_ids":      ids,
		"attention_mask": mask,
		"token_type_ids": types,
	}
	inputs := make([]ort.Value, 0, len(e.inputNames))
	defer func() {
		for _, v := range inputs {
			_ = v.Destroy()
		}
	}()
	for _, name := range e.inputNames {
		t, err := ort.NewTensor(shape, toInt64(feeds[name]))
		if err != nil {
			return nil, fmt.Errorf("emb: %s tensor: %w", name, err)
		}
		inputs = append(inputs, t)
	}
	out, err := ort.NewEmptyTensor[float32](ort.NewShape(1, seq, int64(e.hidden)))
	if err != nil {
		return nil, fmt.Errorf("emb: output tensor: %w", err)
	}
	defer out.Destroy()
	if err := e.session.Run(inputs, []ort.Value{out}); err != nil {
		return nil, fmt.Errorf("emb: run model: %w", err)
	}
	return meanPool(out.GetData(), mask, e.hidden), nil
}

// meanPool averages the token states selected by mask and L2-normalizes the result.
func meanPool(states []float32, mask []int, hidden int) []float32 {
	vec := make([]float32, hidden)
	var count float32
	for t, m := range mask {
		if m == 0 {
			continue
		}
		row := states[t*hidden : (t+1)*hidden]
		for i, v := range row {
			vec[i] += v
		}
		count++
	}
	if count == 0 {
		return vec
	}
	var norm float64
	for i := range vec {
		vec[i] /= count
		norm += float64(vec[i]) * float64(vec[i])
	}
	if norm == 0 {
		return vec
	}
	inv := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= inv
	}
	return vec
}

// truncate keeps the first max-1 tokens plus the final special token.
func truncate(v []int, max int) []int {
	if len(v) <= max {
		return v
	}
	out := make([]int, max)
	copy(out, v[:max-1])
	out[max-1] = v[len(v)-1]
	return out
}

func toInt64(v []int) []int64 {
	out := make([]int64, len(v))
	for i, x := range v {
		out[i] = int64(x)
	}
	return out
}

func acquireEnvironment(dll string) error {
	ortEnv.Lock()
	defer ortEnv.Unlock()
	if ortEnv.refs == 0 && !ort.IsInitialized() {
		if dll != "" {
			ort.SetSharedLibraryPath(dll)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return fmt.Errorf("emb: initialize onnxruntime: %w", err)
		}
	}
	ortEnv.refs++
	return nil
}

func releaseEnvironment() {
	ortEnv.Lock()
	defer ortEnv.Unlock()
	if ortEnv.refs == 0 {
		return
	}
	ortEnv.refs--
	if ortEnv.refs == 0 && ort.IsInitialized() {
		_ = ort.DestroyEnvironment()
	}
}
