package result

import (
	"testing"
)

func TestComparator_Compare_Strict(t *testing.T) {
	comparator := NewComparator(true)

	tests := []struct {
		name           string
		serialOutput  string
		parallelOutput string
		want           bool
	}{
		{
			name:           "完全相同",
			serialOutput:  "Hello World",
			parallelOutput: "Hello World",
			want:           true,
		},
		{
			name:           "忽略首尾空白",
			serialOutput:  "  Hello World  \n",
			parallelOutput: "Hello World",
			want:           true,
		},
		{
			name:           "Windows换行符",
			serialOutput:  "Hello\r\nWorld",
			parallelOutput: "Hello\nWorld",
			want:           true,
		},
		{
			name:           "内容不同",
			serialOutput:  "Hello World",
			parallelOutput: "Hello Universe",
			want:           false,
		},
		{
			name:           "多余空格（严格模式）",
			serialOutput:  "Hello  World",
			parallelOutput: "Hello World",
			want:           false,
		},
		{
			name:           "空字符串",
			serialOutput:  "",
			parallelOutput: "",
			want:           true,
		},
		{
			name:           "多行输出",
			serialOutput:  "1\n2\n3",
			parallelOutput: "1\n2\n3",
			want:           true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := comparator.Compare(tt.serialOutput, tt.parallelOutput)
			if got != tt.want {
				t.Errorf("Compare() = %v, want %v\nSerial: %q\nParallel: %q",
					got, tt.want, tt.serialOutput, tt.parallelOutput)
			}
		})
	}
}

func TestComparator_Compare_Fuzzy(t *testing.T) {
	comparator := NewComparator(false)

	tests := []struct {
		name           string
		serialOutput  string
		parallelOutput string
		want           bool
	}{
		{
			name:           "完全相同",
			serialOutput:  "Hello World",
			parallelOutput: "Hello World",
			want:           true,
		},
		{
			name:           "多余空格（模糊模式）",
			serialOutput:  "Hello  World",
			parallelOutput: "Hello World",
			want:           true,
		},
		{
			name:           "多余换行",
			serialOutput:  "Hello\n\nWorld",
			parallelOutput: "Hello World",
			want:           true,
		},
		{
			name:           "数字序列",
			serialOutput:  "1 2 3 4 5",
			parallelOutput: "1\n2\n3\n4\n5",
			want:           true,
		},
		{
			name:           "内容不同",
			serialOutput:  "1 2 3",
			parallelOutput: "1 2 4",
			want:           false,
		},
		{
			name:           "数量不同",
			serialOutput:  "1 2 3",
			parallelOutput: "1 2",
			want:           false,
		},
		{
			name:           "A+B问题",
			serialOutput:  "3\n",
			parallelOutput: "3",
			want:           true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := comparator.Compare(tt.serialOutput, tt.parallelOutput)
			if got != tt.want {
				t.Errorf("Compare() = %v, want %v\nSerial: %q\nParallel: %q",
					got, tt.want, tt.serialOutput, tt.parallelOutput)
			}
		})
	}
}

func TestNormalizeString(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "Windows换行符",
			input: "Hello\r\nWorld\r\n",
			want:  "Hello\nWorld",
		},
		{
			name:  "首尾空白",
			input: "  Hello World  \n\n",
			want:  "Hello World",
		},
		{
			name:  "制表符",
			input: "\tHello\t",
			want:  "Hello",
		},
		{
			name:  "空字符串",
			input: "",
			want:  "",
		},
		{
			name:  "只有空白",
			input: "   \n\n\t  ",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeString(tt.input)
			if got != tt.want {
				t.Errorf("normalizeString() = %q, want %q", got, tt.want)
			}
		})
	}
}

// 基准测试
func BenchmarkComparator_Compare_Strict(b *testing.B) {
	comparator := NewComparator(true)
	serialOutput := "Hello World\nThis is a test\n1 2 3 4 5"
	parallelOutput := "Hello World\nThis is a test\n1 2 3 4 5"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		comparator.Compare(serialOutput, parallelOutput)
	}
}

func BenchmarkComparator_Compare_Fuzzy(b *testing.B) {
	comparator := NewComparator(false)
	serialOutput := "Hello World\nThis is a test\n1 2 3 4 5"
	parallelOutput := "Hello World\nThis is a test\n1 2 3 4 5"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		comparator.Compare(serialOutput, parallelOutput)
	}
}


func TestComparator_Diff(t *testing.T) {
	comparator := NewComparator(false)

	tests := []struct {
		name           string
		serialOutput   string
		parallelOutput string
		want           string
	}{
		{
			name:           "输出一致",
			serialOutput:   "sum = 10\n",
			parallelOutput: "sum = 10\r\n",
			want:           "",
		},
		{
			name:           "单行不同",
			serialOutput:   "start\nsum = 10\nend\n",
			parallelOutput: "start\nsum = 12\nend\n",
			want:           "  start\n- sum = 10\n+ sum = 12\n  end\n",
		},
		{
			name:           "并行多一行",
			serialOutput:   "a\n",
			parallelOutput: "a\nb\n",
			want:           "  a\n+ b\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := comparator.Diff(tt.serialOutput, tt.parallelOutput)
			if got != tt.want {
				t.Errorf("Diff() = %q, want %q", got, tt.want)
			}
		})
	}
}
