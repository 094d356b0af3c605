package historystore

import (
	"github.com/pkg/errors"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

func encodeHistory(history []string) ([]byte, error) {
	list := &structpb.ListValue{Values: make([]*structpb.Value, 0, len(history))}
	for _, q := range history {
		list.Values = append(list.Values, structpb.NewStringValue(q))
	}
	return proto.Marshal(list)
}

func decodeHistory(data []byte) ([]string, error) {
	var list structpb.ListValue
	if err := proto.Unmarshal(data, &list); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(list.GetValues()))
	for i, v := range list.GetValues() {
		s, ok := v.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return nil, errors.Errorf("entry %d is not a string", i)
		}
		out = append(out, s.StringValue)
	}
	return out, nil
}
